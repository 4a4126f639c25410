package chip

import "fmt"

// Family identifies a sound chip type. Values are the VGM chip type ids used
// by DAC stream setup (0x90) and data blocks.
type Family uint8

const (
	SN76489    Family = 0x00
	YM2413     Family = 0x01
	YM2612     Family = 0x02
	YM2151     Family = 0x03
	SegaPCM    Family = 0x04
	RF5C68     Family = 0x05
	YM2203     Family = 0x06
	YM2608     Family = 0x07
	YM2610     Family = 0x08
	YM3812     Family = 0x09
	YM3526     Family = 0x0A
	Y8950      Family = 0x0B
	YMF262     Family = 0x0C
	YMF278B    Family = 0x0D
	YMF271     Family = 0x0E
	YMZ280B    Family = 0x0F
	RF5C164    Family = 0x10
	PWM        Family = 0x11
	AY8910     Family = 0x12
	GBDMG      Family = 0x13
	NESAPU     Family = 0x14
	MultiPCM   Family = 0x15
	UPD7759    Family = 0x16
	OKIM6258   Family = 0x17
	OKIM6295   Family = 0x18
	K051649    Family = 0x19
	K054539    Family = 0x1A
	HuC6280    Family = 0x1B
	C140       Family = 0x1C
	K053260    Family = 0x1D
	Pokey      Family = 0x1E
	QSound     Family = 0x1F
	SCSP       Family = 0x20
	WonderSwan Family = 0x21
	VSU        Family = 0x22
	SAA1099    Family = 0x23
	ES5503     Family = 0x24
	ES5506     Family = 0x25
	X1010      Family = 0x26
	C352       Family = 0x27
	GA20       Family = 0x28

	FamilyCount = 0x29
)

// Domain is the clock domain a family renders in.
type Domain uint8

const (
	// Stream chips render whole sample frames at the FM rate and are resampled.
	Stream Domain = iota
	// Blip chips add deltas at their native clock into a band-limited bus.
	Blip
)

// Blip buses, one per blip family.
const (
	BusPSG = iota
	BusAux
	BusHandheld
	BusCard

	BusCount
)

// Info describes a family.
type Info struct {
	Name        string
	ClockOffset int // header offset of the clock field
	Domain      Domain
	Bus         int // blip bus, Blip domain only
}

var families = [FamilyCount]Info{
	SN76489:    {"SN76489", 0x0C, Blip, BusPSG},
	YM2413:     {"YM2413", 0x10, Stream, 0},
	YM2612:     {"YM2612", 0x2C, Stream, 0},
	YM2151:     {"YM2151", 0x30, Stream, 0},
	SegaPCM:    {"SegaPCM", 0x38, Stream, 0},
	RF5C68:     {"RF5C68", 0x40, Stream, 0},
	YM2203:     {"YM2203", 0x44, Stream, 0},
	YM2608:     {"YM2608", 0x48, Stream, 0},
	YM2610:     {"YM2610", 0x4C, Stream, 0},
	YM3812:     {"YM3812", 0x50, Stream, 0},
	YM3526:     {"YM3526", 0x54, Stream, 0},
	Y8950:      {"Y8950", 0x58, Stream, 0},
	YMF262:     {"YMF262", 0x5C, Stream, 0},
	YMF278B:    {"YMF278B", 0x60, Stream, 0},
	YMF271:     {"YMF271", 0x64, Stream, 0},
	YMZ280B:    {"YMZ280B", 0x68, Stream, 0},
	RF5C164:    {"RF5C164", 0x6C, Stream, 0},
	PWM:        {"PWM", 0x70, Stream, 0},
	AY8910:     {"AY8910", 0x74, Blip, BusAux},
	GBDMG:      {"GB DMG", 0x80, Blip, BusHandheld},
	NESAPU:     {"NES APU", 0x84, Stream, 0},
	MultiPCM:   {"MultiPCM", 0x88, Stream, 0},
	UPD7759:    {"uPD7759", 0x8C, Stream, 0},
	OKIM6258:   {"OKIM6258", 0x90, Stream, 0},
	OKIM6295:   {"OKIM6295", 0x98, Stream, 0},
	K051649:    {"K051649", 0x9C, Stream, 0},
	K054539:    {"K054539", 0xA0, Stream, 0},
	HuC6280:    {"HuC6280", 0xA4, Blip, BusCard},
	C140:       {"C140", 0xA8, Stream, 0},
	K053260:    {"K053260", 0xAC, Stream, 0},
	Pokey:      {"Pokey", 0xB0, Stream, 0},
	QSound:     {"QSound", 0xB4, Stream, 0},
	SCSP:       {"SCSP", 0xB8, Stream, 0},
	WonderSwan: {"WonderSwan", 0xC0, Stream, 0},
	VSU:        {"VSU", 0xC4, Stream, 0},
	SAA1099:    {"SAA1099", 0xC8, Stream, 0},
	ES5503:     {"ES5503", 0xCC, Stream, 0},
	ES5506:     {"ES5506", 0xD0, Stream, 0},
	X1010:      {"X1-010", 0xD8, Stream, 0},
	C352:       {"C352", 0xDC, Stream, 0},
	GA20:       {"GA20", 0xE0, Stream, 0},
}

// Valid reports whether f is a known family.
func (f Family) Valid() bool {
	return f < FamilyCount
}

// Info returns the static description of f.
func (f Family) Info() Info {
	if !f.Valid() {
		return Info{Name: fmt.Sprintf("chip 0x%02X", uint8(f)), Domain: Stream}
	}
	return families[f]
}

func (f Family) String() string {
	return f.Info().Name
}

// Families returns every known family in id order.
func Families() []Family {
	out := make([]Family, FamilyCount)
	for i := range out {
		out[i] = Family(i)
	}
	return out
}

package chip

// Event is a recorded register write. Time is in the chip's native domain,
// counted from the last Reset across frames.
type Event struct {
	Family Family
	ID     int
	Time   int
	Port   uint8
	Reg    uint8
	Data   uint8
}

// Recorder is a silent chip that keeps every write with its native timestamp.
type Recorder struct {
	Null

	family Family
	id     int
	base   int
	now    int
	last   int

	Events []Event
}

func NewRecorder(f Family, id int) *Recorder {
	return &Recorder{family: f, id: id}
}

// RecorderFactory builds a Recorder for every instance and keeps them so the
// caller can inspect them after playback.
type RecorderFactory struct {
	Recorders map[Family]*[2]*Recorder
}

func NewRecorderFactory() *RecorderFactory {
	return &RecorderFactory{Recorders: make(map[Family]*[2]*Recorder)}
}

// New implements Factory.
func (rf *RecorderFactory) New(f Family, id int) Chip {
	r := NewRecorder(f, id)
	pair, ok := rf.Recorders[f]
	if !ok {
		pair = &[2]*Recorder{}
		rf.Recorders[f] = pair
	}
	pair[id&1] = r
	return r
}

// Get returns the recorder built for an instance, or nil.
func (rf *RecorderFactory) Get(f Family, id int) *Recorder {
	pair, ok := rf.Recorders[f]
	if !ok {
		return nil
	}
	return pair[id&1]
}

func (r *Recorder) Reset() {
	r.Null.Reset()
	r.base, r.now, r.last = 0, 0, 0
	r.Events = r.Events[:0]
}

func (r *Recorder) RunUntil(t int) int {
	if t > r.now {
		r.now = t
	}
	r.last = t
	return r.Null.RunUntil(t)
}

func (r *Recorder) BeginFrame(out []int16) {
	r.base += r.last
	r.now, r.last = 0, 0
	r.Null.BeginFrame(out)
}

func (r *Recorder) EndFrame(t int) {
	r.base += t
	r.now, r.last = 0, 0
	r.Null.EndFrame(t)
}

func (r *Recorder) Write(port, reg, data uint8) {
	r.Events = append(r.Events, Event{
		Family: r.family,
		ID:     r.id,
		Time:   r.base + r.now,
		Port:   port,
		Reg:    reg,
		Data:   data,
	})
}

// Now returns the current native time, counted from the last Reset.
func (r *Recorder) Now() int {
	return r.base + r.now
}

var _ Chip = (*Recorder)(nil)

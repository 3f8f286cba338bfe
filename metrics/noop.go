package metrics

// noop satisfies Metrics without recording anything, used when no
// provider is configured (the teacher's dummyProvider equivalent).
type noop struct{}

func newNoop() Metrics { return noop{} }

func (noop) Counter(string) Counter     { return noopCounter{} }
func (noop) Timer(string) Timer         { return noopTimer{} }
func (noop) Histogram(string) Histogram { return noopHistogram{} }
func (noop) All() map[string]any        { return map[string]any{} }

type noopCounter struct{}

func (noopCounter) Incr()          {}
func (noopCounter) Add(uint64)     {}
func (noopCounter) Value() uint64  { return 0 }

type noopTimer struct{}

func (noopTimer) Start()      {}
func (noopTimer) Stop() int64 { return 0 }
func (noopTimer) Value() int64 { return 0 }

type noopHistogram struct{}

func (noopHistogram) Update(int64) {}

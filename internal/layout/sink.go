package layout

// Page is the recorded output for one page.
type Page struct {
	Index      int
	Placements []Placement
}

// Recorder is a Sink that keeps every placement, grouped by page.
type Recorder struct {
	Pages []Page
}

// BeginPage implements Sink.
func (r *Recorder) BeginPage(index int) {
	r.Pages = append(r.Pages, Page{Index: index})
}

// Place implements Sink. Placements before the first page are dropped.
func (r *Recorder) Place(p Placement) {
	if len(r.Pages) == 0 {
		return
	}
	last := &r.Pages[len(r.Pages)-1]
	last.Placements = append(last.Placements, p)
}

// Reset discards recorded pages, keeping capacity.
func (r *Recorder) Reset() {
	r.Pages = r.Pages[:0]
}

// Tee returns a Sink that forwards to every non-nil sink in order.
func Tee(sinks ...Sink) Sink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

type tee []Sink

func (t tee) BeginPage(index int) {
	for _, s := range t {
		s.BeginPage(index)
	}
}

func (t tee) Place(p Placement) {
	for _, s := range t {
		s.Place(p)
	}
}

// Discard is a Sink that drops everything. Useful for measuring.
var Discard Sink = discard{}

type discard struct{}

func (discard) BeginPage(int)   {}
func (discard) Place(Placement) {}

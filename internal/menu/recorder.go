package menu

// Recorder receives menu events worth counting.
type Recorder interface {
	MenuRendered(menuName string)
	URLResolutionFailed(namedURL string)
	CorruptChain(itemID int64)
}

// NopRecorder ignores every event.
type NopRecorder struct{}

func (NopRecorder) MenuRendered(string)        {}
func (NopRecorder) URLResolutionFailed(string) {}
func (NopRecorder) CorruptChain(int64)         {}

package realtime

import "github.com/charlesng35/chatgate/internal/presenter"

// Event names for messages that carry more than a signal.
const (
	EventReport = "report"
	EventError  = "error"
)

// View forwards presenter signals to a Stream as they happen.
type View struct {
	stream *Stream
}

// NewView wraps stream as a presenter.View.
func NewView(stream *Stream) *View {
	return &View{stream: stream}
}

var _ presenter.View = (*View)(nil)

func (v *View) UpdateServerURL(url string) {
	v.stream.Send(Message{Event: presenter.SignalUpdateServerURL, Data: map[string]string{"url": url}})
}

func (v *View) VersionOK() { v.signal(presenter.SignalVersionOK) }

func (v *View) AlertNotRecommendedVersion() { v.signal(presenter.SignalNotRecommendedVersion) }

func (v *View) BlockAndAlertNotRequiredVersion() { v.signal(presenter.SignalNotRequiredVersion) }

func (v *View) ErrorInvalidProtocol() { v.signal(presenter.SignalInvalidProtocol) }

func (v *View) ErrorCheckingServerVersion() { v.signal(presenter.SignalErrorCheckingServerVersion) }

func (v *View) signal(name string) {
	v.stream.Send(Message{Event: name})
}

package wlanix

import "github.com/HerbHall/wlanix/internal/nl80211"

// Nl80211Request is one request on an nl80211 message session.
type Nl80211Request interface {
	isNl80211Request()
}

// Nl80211Message carries one encoded nl80211 command. The server replies
// with an ordered list of response messages, or an Errno if the command
// could not be handled at all. Servers that take an early-return path must
// still complete the request; deferring a Fail reply and relying on the
// completer's first-reply-wins rule is the usual shape.
type Nl80211Message struct {
	Message nl80211.Message
	C       *Completer[Result[[]nl80211.Message]]
}

// Nl80211GetMulticast subscribes a receiver to the named multicast group.
// Unsupported group names get their receiver closed immediately.
type Nl80211GetMulticast struct {
	Group     string
	Multicast *Nl80211Multicast
}

// Nl80211Unknown is a request with an unrecognized ordinal.
type Nl80211Unknown struct {
	Ordinal uint64
}

func (Nl80211Message) isNl80211Request()      {}
func (Nl80211GetMulticast) isNl80211Request() {}
func (Nl80211Unknown) isNl80211Request()      {}

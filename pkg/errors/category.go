package errors

// Category groups response errors for internal routing and metrics.
// It is never transmitted on the wire.
type Category uint8

const (
	// CategorySystem covers transport, authentication and platform failures
	CategorySystem Category = iota + 1
	// CategoryBusiness covers account, transaction and merchant rule failures
	CategoryBusiness
	// CategoryMessage covers request message format failures and plain success
	CategoryMessage
)

// String returns the lowercase category name used as a metrics label.
func (c Category) String() string {
	switch c {
	case CategorySystem:
		return "system"
	case CategoryBusiness:
		return "business"
	case CategoryMessage:
		return "message"
	default:
		return "unknown"
	}
}

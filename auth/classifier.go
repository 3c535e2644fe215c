package auth

// User-facing messages for classified authentication failures. Unknown
// accounts and wrong passwords share one message so responses cannot be
// used to enumerate accounts.
const (
	MsgBadCredentials = "username/password incorrect"
	MsgAccountLocked  = "account is locked"
	MsgAuthError      = "authentication error"
	MsgServerBusy     = "server busy"
)

// Classify maps an authentication failure to its user-facing message and
// category. It is pure: both the form login and the async login call it,
// and callers decide log severity from the returned Kind (KindUnexpected
// at error level, everything else at debug).
func Classify(err error) (string, Kind) {
	kind := KindOf(err)

	switch kind {
	case KindUnknownAccount, KindIncorrectCredentials:
		return MsgBadCredentials, kind
	case KindLocked:
		return MsgAccountLocked, kind
	case KindRateLimited:
		// The rate limiter's own message carries the retry hint.
		return err.Error(), kind
	case KindGeneric:
		return MsgAuthError, kind
	default:
		return MsgServerBusy, KindUnexpected
	}
}

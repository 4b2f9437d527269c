package mstp

// Actions understood by the file server.
const (
	ActionUserInfo  = "user-info"
	ActionSignIn    = "user-sign-in"
	ActionBroadcast = "broadcast"
	ActionHistory   = "history"
	ActionDeliver   = "deliver"
)

// Values of the "status" header on RES messages.
const (
	StatusOK     = "ok"
	StatusDenied = "denied"
	StatusError  = "error"
)

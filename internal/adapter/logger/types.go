package logger

// Field keys of every log line.
const (
	keyTimestamp = "timestamp"
	keyLevel     = "level"
	keyService   = "service"
	keyHostname  = "hostname"
	keyRequestID = "request_id"
	keyAction    = "action"
	keyMessage   = "message"
	keyDetails   = "details"
	keyError     = "error"
)

// Details carries structured context of a log line.
type Details = map[string]interface{}

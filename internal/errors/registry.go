package errors

// Error codes used across the engine.
const (
	CodeNodeNotFound     = "L001"
	CodeNoRoot           = "L002"
	CodeNativeCallFailed = "L003"
	CodeReadinessTimeout = "L004"
	CodeEventDecode      = "L005"
	CodeHandlerNotFound  = "L006"
	CodeConfigInvalid    = "L007"
	CodeTransportClosed  = "L008"
	CodeCallInFlight     = "L009"
	CodeTreeCycle        = "L010"
)

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	CodeNodeNotFound: {
		Category: CategoryTree,
		Message:  "node not found",
		Detail:   "The referenced node id is not present in the shadow tree. It may have been removed, or the id was never issued.",
	},
	CodeNoRoot: {
		Category: CategoryTree,
		Message:  "no root node",
		Detail:   "The shadow tree root was read before any node was attached to the session container.",
	},
	CodeNativeCallFailed: {
		Category: CategoryHost,
		Message:  "native call failed",
		Detail:   "The native engine reported a non-zero status for a bridged call. The error payload has been released.",
	},
	CodeReadinessTimeout: {
		Category: CategoryHost,
		Message:  "engine readiness timeout",
		Detail:   "The native engine did not report ready before the session initialization deadline.",
	},
	CodeEventDecode: {
		Category: CategoryProtocol,
		Message:  "event batch decode failed",
		Detail:   "A polled event batch could not be decoded. The batch is dropped; polling continues.",
	},
	CodeHandlerNotFound: {
		Category: CategoryEvents,
		Message:  "handler not found",
		Detail:   "The referenced handler id is not present in the registry. The element may have re-rendered with different handlers.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "invalid configuration",
		Detail:   "The loom configuration file could not be parsed or contains out-of-range values.",
	},
	CodeTransportClosed: {
		Category: CategoryHost,
		Message:  "transport closed",
		Detail:   "The connection to the native engine is closed; no further calls can be issued on this session.",
	},
	CodeCallInFlight: {
		Category: CategoryHost,
		Message:  "call already in flight",
		Detail:   "A native call was attempted while another call on the same session had not completed. Session calls are strictly sequential.",
	},
	CodeTreeCycle: {
		Category: CategoryTree,
		Message:  "insertion would create a cycle",
		Detail:   "The requested parent is the node itself or one of its descendants. Both nodes exist; the edit is rejected as structural misuse.",
	},
}

// Registered reports whether a code is in the registry.
func Registered(code string) bool {
	_, ok := registry[code]
	return ok
}

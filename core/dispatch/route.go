package dispatch

import "github.com/m3rciful/aiftbot/core/session"

// Route names the branch the selector took for an event.
type Route string

const (
	RouteCancel         Route = "cancel"
	RouteImageMenu      Route = "image_menu"
	RouteImageSelect    Route = "image_select"
	RouteImageHint      Route = "image_hint"
	RouteImageReminder  Route = "image_reminder"
	RouteTimeout        Route = "timeout"
	RouteAwaitCommand   Route = "await_command"
	RouteNLP            Route = "nlp"
	RouteNotFound       Route = "not_found"
	RouteInvalidParam   Route = "invalid_param"
	RouteMultimodal     Route = "multimodal"
	RouteChat           Route = "chat"
	RouteImage          Route = "image"
	RouteAccumulate     Route = "accumulate"
	RouteFile           Route = "file"
	RouteFileRejected   Route = "file_rejected"
	RouteUnsupported    Route = "unsupported"
	RouteEmpty          Route = "empty"
	RouteAccumulateFail Route = "accumulate_failed"
)

// Outcome reports what Dispatch did with an event.
type Outcome struct {
	Route       Route
	StateBefore session.State
	// Err is the workflow or delivery error, already answered to the user.
	Err error
}

package assistant

// turnState tracks where a turn is in its lifecycle. Turns move strictly
// forward; stateFailed is reachable from any state.
type turnState string

const (
	stateAwaitingReply   turnState = "awaiting_reply"
	stateReplyReceived   turnState = "reply_received"
	stateExtractingTools turnState = "extracting_tools"
	stateDispatching     turnState = "dispatching"
	stateDone            turnState = "done"
	stateFailed          turnState = "failed"
)

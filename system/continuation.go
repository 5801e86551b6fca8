package system

import (
	"github.com/reglet-dev/cwvm/domain/entities"
	engerrors "github.com/reglet-dev/cwvm/domain/errors"
)

// ContinuationKind tags a Continuation.
type ContinuationKind int

const (
	// KindContinue keeps going with the sub-message's data, if any.
	KindContinue ContinuationKind = iota + 1
	// KindReply calls the emitting contract's reply entry point.
	KindReply
	// KindAbort fails the whole call.
	KindAbort
)

func (k ContinuationKind) String() string {
	switch k {
	case KindContinue:
		return "continue"
	case KindReply:
		return "reply"
	case KindAbort:
		return "abort"
	}
	return "unknown"
}

// DispatchResult is the outcome of dispatching one sub-message.
type DispatchResult struct {
	Err    error
	Data   []byte
	Events []entities.Event
}

// Continuation is what the dispatch loop does after a sub-message. Only the
// field matching Kind is meaningful.
type Continuation struct {
	Err    error
	Result entities.SubMsgResult
	Data   []byte
	Kind   ContinuationKind
}

// Commit reports whether the sub-message's nested transaction is kept.
func (c Continuation) Commit() bool {
	switch c.Kind {
	case KindContinue:
		return true
	case KindReply:
		return c.Result.Ok != nil
	}
	return false
}

// Decide combines a dispatch outcome with the sub-message's reply policy:
//
//	success  never|error     ->  Continue(data), commit
//	success  always|success  ->  Reply(ok), commit
//	failure  always|error    ->  Reply(err), rollback
//	failure  never|success   ->  Abort(err), rollback
func Decide(res DispatchResult, replyOn entities.ReplyOn) Continuation {
	if res.Err == nil {
		switch replyOn {
		case entities.ReplyNever, entities.ReplyError:
			return Continuation{Kind: KindContinue, Data: res.Data}
		case entities.ReplyAlways, entities.ReplySuccess:
			return Continuation{Kind: KindReply, Result: entities.SubMsgResult{
				Ok: &entities.SubMsgResponse{Events: res.Events, Data: res.Data},
			}}
		}
		return Continuation{Kind: KindAbort, Err: unknownReplyOn(replyOn)}
	}

	switch replyOn {
	case entities.ReplyAlways, entities.ReplyError:
		return Continuation{Kind: KindReply, Result: entities.SubMsgResult{Err: res.Err.Error()}}
	case entities.ReplyNever, entities.ReplySuccess:
		return Continuation{Kind: KindAbort, Err: res.Err}
	}
	return Continuation{Kind: KindAbort, Err: res.Err}
}

func unknownReplyOn(replyOn entities.ReplyOn) error {
	return engerrors.NewSystemError(engerrors.SystemUnsupportedMessage, "unknown reply_on %q", replyOn)
}

// Package binding implements the Binding/Reporting Coordinator of
// SPEC_FULL §4.7: Mgmt_Bind_req pagination/dedup, bind/configure-report/
// unbind decision logic, and the Task state machine, grounded on
// statemanager.Manager's tracked-operations shape.
package binding

import "time"

// TaskState is the Task state machine of SPEC_FULL §4.7.
type TaskState string

const (
	TaskIdle         TaskState = "idle"
	TaskInProgress   TaskState = "in-progress"
	TaskWaitConfirm  TaskState = "wait-confirm"
	TaskWaitResponse TaskState = "wait-response"
	TaskFinished     TaskState = "finished"
)

// Kind distinguishes the three request shapes a Task can carry.
type Kind uint8

const (
	KindBind Kind = iota
	KindUnbind
	KindConfigureReport
)

// Six-tuple identifying a binding table entry (SPEC_FULL §4.7 step 1).
type BindingKey struct {
	SrcExtAddress uint64
	SrcEndpoint   uint8
	ClusterID     uint16
	DstMode       uint8 // 0x01 = unicast, 0x03 = group
	DstAddress    uint64
	DstEndpoint   uint8
}

// TimeoutTicks returns the wait window before a Task is considered
// failed, in scheduler ticks (1 tick = 1 second): 72 for end devices,
// 16 for mains-powered devices.
func TimeoutTicks(endDevice bool) int {
	if endDevice {
		return 72
	}
	return 16
}

const MaxRetries = 3

// Task tracks one outstanding bind/unbind/configure-report request.
type Task struct {
	ID         uint32
	Kind       Kind
	Key        BindingKey
	EndDevice  bool
	State      TaskState
	RequestID  uint8 // correlates the local APS confirm
	ZDPSeq     uint8 // correlates the ZDP response
	Attempt    int
	CreatedAt  time.Time
	SentAt     time.Time
	Report     *ReportSpec
}

// ReportSpec is the DDF report block a KindConfigureReport task carries.
type ReportSpec struct {
	AttributeID      uint16
	DataType         uint8
	MinInterval      uint16
	MaxInterval      uint16
	ReportableChange uint64
	ManufacturerCode uint16
}

func NewTask(id uint32, kind Kind, key BindingKey, endDevice bool, now time.Time) *Task {
	return &Task{ID: id, Kind: kind, Key: key, EndDevice: endDevice, State: TaskIdle, CreatedAt: now}
}

// Send transitions Idle -> InProgress, recording the request id used to
// correlate the eventual APS confirm.
func (t *Task) Send(requestID uint8, now time.Time) {
	t.State = TaskInProgress
	t.RequestID = requestID
	t.SentAt = now
}

// ConfirmReceived transitions InProgress -> WaitConfirm on a matching
// local APS confirm (SPEC_FULL §4.7 correlation rule).
func (t *Task) ConfirmReceived(requestID uint8) bool {
	if t.State != TaskInProgress || requestID != t.RequestID {
		return false
	}
	t.State = TaskWaitConfirm
	return true
}

// ZDPRequestSent transitions WaitConfirm -> WaitResponse, recording the
// ZDP sequence number the eventual response must echo.
func (t *Task) ZDPRequestSent(zdpSeq uint8) bool {
	if t.State != TaskWaitConfirm {
		return false
	}
	t.State = TaskWaitResponse
	t.ZDPSeq = zdpSeq
	return true
}

// ResponseReceived transitions WaitResponse -> Finished on a matching
// ZDP response with success status.
func (t *Task) ResponseReceived(zdpSeq uint8, success bool) bool {
	if t.State != TaskWaitResponse || zdpSeq != t.ZDPSeq || !success {
		return false
	}
	t.State = TaskFinished
	return true
}

// TimedOut reports whether t has been waiting longer than its timeout
// window since it was sent.
func (t *Task) TimedOut(now time.Time) bool {
	if t.State == TaskIdle || t.State == TaskFinished {
		return false
	}
	return now.Sub(t.SentAt) > time.Duration(TimeoutTicks(t.EndDevice))*time.Second
}

// Retry increments the attempt counter and resets to Idle for resend, or,
// once MaxRetries is exhausted, marks the task Finished and returns false
// (SPEC_FULL §4.7: "after exhaustion, the task is marked finished"); any
// device-level backoff is left to the caller.
func (t *Task) Retry() bool {
	if t.Attempt >= MaxRetries {
		t.State = TaskFinished
		return false
	}
	t.Attempt++
	t.State = TaskIdle
	return true
}

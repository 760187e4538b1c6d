// Package sqsreport sends call outcomes to an SQS queue as JSON.
package sqsreport

import (
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/programme-lv/isocall/report"
)

type sqsReporter struct {
	sqsClient *sqs.Client
	queueUrl  string
}

type callEvent struct {
	Event     string         `json:"event"`
	CallID    string         `json:"call_id"`
	Task      string         `json:"task,omitempty"`
	Transport string         `json:"transport,omitempty"`
	Pid       int            `json:"pid,omitempty"`
	Result    *report.Result `json:"result,omitempty"`
}

func (r *sqsReporter) StartCall(callID string, task string, transport string) {
	r.send(callEvent{Event: "start", CallID: callID, Task: task, Transport: transport})
}

func (r *sqsReporter) SpawnChild(callID string, pid int) {
	r.send(callEvent{Event: "spawn", CallID: callID, Pid: pid})
}

func (r *sqsReporter) FinishCall(callID string, res report.Result) {
	r.send(callEvent{Event: "finish", CallID: callID, Task: res.Task, Result: &res})
}

// Package natsreport streams call outcomes to a NATS subject as JSON.
package natsreport

import (
	"github.com/nats-io/nats.go"
	"github.com/programme-lv/isocall/report"
)

type natsReporter struct {
	nc      *nats.Conn
	subject string
}

type callEvent struct {
	Event     string         `json:"event"`
	CallID    string         `json:"call_id"`
	Task      string         `json:"task,omitempty"`
	Transport string         `json:"transport,omitempty"`
	Pid       int            `json:"pid,omitempty"`
	Result    *report.Result `json:"result,omitempty"`
}

func (r *natsReporter) StartCall(callID string, task string, transport string) {
	r.send(callEvent{Event: "start", CallID: callID, Task: task, Transport: transport})
}

func (r *natsReporter) SpawnChild(callID string, pid int) {
	r.send(callEvent{Event: "spawn", CallID: callID, Pid: pid})
}

func (r *natsReporter) FinishCall(callID string, res report.Result) {
	r.send(callEvent{Event: "finish", CallID: callID, Task: res.Task, Result: &res})
}

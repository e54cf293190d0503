// Package mailtest provides an in-memory mail.Notifier for tests.
package mailtest

import (
	"context"
	"sync"
)

// Message is one recorded send.
type Message struct {
	To      string
	Subject string
	Body    string
	IsHTML  bool
}

// Recorder keeps every message it is asked to send. Set Err to make Send
// fail; failed sends are not recorded.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

func (r *Recorder) Send(_ context.Context, to, subject, body string, isHTML bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, Message{To: to, Subject: subject, Body: body, IsHTML: isHTML})
	return nil
}

// Messages returns a copy of what was sent so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message and whether there was one.
func (r *Recorder) Last() (Message, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return Message{}, false
	}
	return r.messages[len(r.messages)-1], true
}

// Fail sets the error returned by subsequent sends.
func (r *Recorder) Fail(err error) {
	r.mu.Lock()
	r.Err = err
	r.mu.Unlock()
}

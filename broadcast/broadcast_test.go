package broadcast

import (
	"time"

	check "gopkg.in/check.v1"
)

var _ = check.Suite(&HubSuite{})

type HubSuite struct{}

func (s *HubSuite) TestFanOut(c *check.C) {
	h := NewHub()
	ch1, cancel1 := h.Subscribe()
	defer cancel1()
	ch2, cancel2 := h.Subscribe()
	defer cancel2()

	h.Publish("server.status", "s1", "u1", map[string]interface{}{"status": "RUNNING"})

	for _, ch := range []<-chan Message{ch1, ch2} {
		select {
		case msg := <-ch:
			c.Check(msg.Type, check.Equals, "server.status")
			c.Check(msg.ServerID, check.Equals, "s1")
			c.Check(msg.Data["status"], check.Equals, "RUNNING")
		case <-time.After(time.Second):
			c.Fatal("subscriber never received the message")
		}
	}
}

func (s *HubSuite) TestCancelledSubscriberStopsReceiving(c *check.C) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	cancel()

	h.Publish("server.status", "s1", "", nil)

	// channel is closed, not delivering
	msg, ok := <-ch
	c.Check(ok, check.Equals, false)
	c.Check(msg.Type, check.Equals, "")
}

func (s *HubSuite) TestSlowSubscriberNeverBlocksPublish(c *check.C) {
	h := NewHub()
	_, cancel := h.Subscribe() // never read
	defer cancel()

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			h.Publish("server.status", "s1", "", nil)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		c.Fatal("Publish blocked on a slow subscriber")
	}
}

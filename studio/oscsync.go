package studio

import (
	"fmt"
	"log"

	"github.com/hypebeast/go-osc/osc"
)

type (
	// TransportSync publishes transport state over OSC so external audio
	// engines and controllers can follow the project clock. All sends are
	// fire-and-forget UDP; a missed packet just means the follower catches up
	// on the next one.
	TransportSync struct {
		client *osc.Client
	}

	// RemoteServer accepts transport control over OSC and forwards it to the
	// transport through the broker, so a hardware controller or another
	// machine can drive playback.
	RemoteServer struct {
		server *osc.Server
	}
)

func NewTransportSync(host string, port int) *TransportSync {
	return &TransportSync{client: osc.NewClient(host, port)}
}

func (s *TransportSync) Play(tick int) {
	s.send(osc.NewMessage("/kaiku/transport/play", int32(tick)))
}

func (s *TransportSync) Stop() {
	s.send(osc.NewMessage("/kaiku/transport/stop"))
}

func (s *TransportSync) Tempo(bpm int) {
	s.send(osc.NewMessage("/kaiku/transport/tempo", int32(bpm)))
}

func (s *TransportSync) Position(tick int) {
	s.send(osc.NewMessage("/kaiku/transport/position", int32(tick)))
}

func (s *TransportSync) send(msg *osc.Message) {
	if err := s.client.Send(msg); err != nil {
		log.Printf("osc send %s failed: %v", msg.Address, err)
	}
}

// NewRemoteServer starts listening for transport control messages on the
// given UDP port. ListenAndServe runs until the process exits; errors from it
// are logged, as remote control is an optional convenience.
func NewRemoteServer(port int, broker *Broker) *RemoteServer {
	d := osc.NewStandardDispatcher()
	d.AddMsgHandler("/kaiku/play", func(msg *osc.Message) {
		tick := 0
		if len(msg.Arguments) > 0 {
			if t, ok := msg.Arguments[0].(int32); ok {
				tick = int(t)
			}
		}
		TrySend(broker.ToTransport, any(StartPlayMsg{Tick: tick}))
	})
	d.AddMsgHandler("/kaiku/pause", func(msg *osc.Message) {
		TrySend(broker.ToTransport, any(PauseMsg{}))
	})
	d.AddMsgHandler("/kaiku/stop", func(msg *osc.Message) {
		TrySend(broker.ToTransport, any(StopMsg{}))
	})
	d.AddMsgHandler("/kaiku/tempo", func(msg *osc.Message) {
		if len(msg.Arguments) > 0 {
			if bpm, ok := msg.Arguments[0].(int32); ok {
				TrySend(broker.ToTransport, any(BPMMsg{int(bpm)}))
			}
		}
	})
	ret := &RemoteServer{
		server: &osc.Server{Addr: fmt.Sprintf(":%d", port), Dispatcher: d},
	}
	go func() {
		if err := ret.server.ListenAndServe(); err != nil {
			log.Printf("osc server on port %d stopped: %v", port, err)
		}
	}()
	return ret
}

func (r *RemoteServer) Close() error {
	return r.server.CloseConnection()
}

package session

import (
	"github.com/lovecc0923/emqttd/internal/hook"
	"github.com/lovecc0923/emqttd/internal/message"
)

// handleSubscribe runs the five-step subscribe procedure: filter through
// the subscribe hook, short-circuit if nothing changed, call the Router,
// merge the result into subscriptions, dispatch retained messages for
// newly-added filters, then notify the after-hook.
func (s *Session) handleSubscribe(ev evSubscribe) {
	// 1. client.subscribe hook may filter/mutate.
	topics := s.deps.Hooks.ClientSubscribe(s.clientID, ev.topics)

	// 2. if nothing new vs current subscriptions, echo and stop.
	if s.allAlreadySubscribed(topics) {
		if ev.ackFn != nil {
			ev.ackFn(echoQoS(topics))
		}
		return
	}

	// 3. call Router.Subscribe, ack with granted QoS.
	req := make(map[string]message.QoS, len(topics))
	for _, t := range topics {
		req[t.Filter] = t.QoS
	}

	var granted map[string]message.QoS
	if s.deps.Router != nil {
		var err error
		granted, err = s.deps.Router.Subscribe(s.clientID, req, s)
		if err != nil {
			s.log.Errorf("%s: router subscribe failed: %v", s.clientID, err)
			granted = req
		}
	} else {
		granted = req
	}

	if ev.ackFn != nil {
		ev.ackFn(granted)
	}

	// 4. merge into subscriptions; new filters only get retained dispatch.
	for _, t := range topics {
		qos, ok := granted[t.Filter]
		if !ok {
			qos = t.QoS
		}
		isNew := s.mergeSubscription(t.Filter, qos)
		if isNew && s.deps.Retained != nil {
			if err := s.deps.Retained.DispatchRetained(t.Filter, s); err != nil {
				s.log.Errorf("%s: retained dispatch for %q failed: %v", s.clientID, t.Filter, err)
			}
		}
	}

	// 5. client.subscribe.after hook.
	s.deps.Hooks.ClientSubscribeAfter(s.clientID, topics)
}

// allAlreadySubscribed reports whether every (filter,qos) in topics
// already matches an existing subscription — the set-difference-empty
// case that lets handleSubscribe echo and return without touching the
// Router.
func (s *Session) allAlreadySubscribed(topics []hook.Topic) bool {
	for _, t := range topics {
		idx, ok := s.subIndex[t.Filter]
		if !ok || s.subscriptions[idx].qos != t.QoS {
			return false
		}
	}
	return len(topics) > 0
}

func echoQoS(topics []hook.Topic) map[string]message.QoS {
	out := make(map[string]message.QoS, len(topics))
	for _, t := range topics {
		out[t.Filter] = t.QoS
	}
	return out
}

// mergeSubscription inserts filter if absent or updates its QoS in place
// if present, returning true if this filter is new (the only case
// retained messages should be dispatched for).
func (s *Session) mergeSubscription(filter string, qos message.QoS) bool {
	if idx, ok := s.subIndex[filter]; ok {
		s.subscriptions[idx].qos = qos
		return false
	}
	s.subIndex[filter] = len(s.subscriptions)
	s.subscriptions = append(s.subscriptions, subscription{filter: filter, qos: qos})
	return true
}

// handleUnsubscribe filters through the unsubscribe hook, calls
// Router.Unsubscribe, then removes each filter from subscriptions.
// Unknown filters are silently ignored (log only).
func (s *Session) handleUnsubscribe(ev evUnsubscribe) {
	filters := s.deps.Hooks.ClientUnsubscribe(s.clientID, ev.filters)

	if s.deps.Router != nil {
		if err := s.deps.Router.Unsubscribe(s.clientID, filters); err != nil {
			s.log.Errorf("%s: router unsubscribe failed: %v", s.clientID, err)
		}
	}

	for _, filter := range filters {
		idx, ok := s.subIndex[filter]
		if !ok {
			s.log.Debugf("%s: unsubscribe of unknown filter %q", s.clientID, filter)
			continue
		}
		s.removeSubscriptionAt(idx, filter)
	}
}

// removeSubscriptionAt deletes subscriptions[idx] (named by filter),
// keeping subIndex consistent for every entry shifted left.
func (s *Session) removeSubscriptionAt(idx int, filter string) {
	s.subscriptions = append(s.subscriptions[:idx], s.subscriptions[idx+1:]...)
	delete(s.subIndex, filter)
	for f, i := range s.subIndex {
		if i > idx {
			s.subIndex[f] = i - 1
		}
	}
}

package service

import (
	"sync/atomic"
	"time"
)

type State struct {
	ready     atomic.Bool
	startedAt time.Time

	programs        atomic.Int32
	receipts        atomic.Int64
	lastReceiptUnix atomic.Int64 // unix seconds
}

func NewState() *State {
	s := &State{startedAt: time.Now()}
	s.ready.Store(false)
	return s
}

func (s *State) SetReady(v bool) { s.ready.Store(v) }
func (s *State) Ready() bool     { return s.ready.Load() }

func (s *State) SetPrograms(n int) { s.programs.Store(int32(n)) }
func (s *State) Programs() int     { return int(s.programs.Load()) }

func (s *State) TouchReceipt(t time.Time) {
	s.receipts.Add(1)
	s.lastReceiptUnix.Store(t.Unix())
}
func (s *State) Receipts() int64 { return s.receipts.Load() }
func (s *State) LastReceipt() time.Time {
	u := s.lastReceiptUnix.Load()
	if u == 0 {
		return time.Time{}
	}
	return time.Unix(u, 0)
}

func (s *State) Uptime() time.Duration { return time.Since(s.startedAt) }

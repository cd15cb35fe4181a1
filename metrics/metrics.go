// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics tracks vault coordinator activity. Declined execute
// attempts (time-lock not mature, target frozen) are expected outcomes
// and are counted here rather than logged as errors.
package metrics

import (
	"github.com/luxfi/metric"
)

var _ Metrics = (*metricsImpl)(nil)

type Metrics interface {
	IncWithdrawalsQueued()
	IncWithdrawalsExecuted()
	IncWithdrawalsCancelled()
	IncSignaturesAdded()
	IncRequestsApproved()
	IncRequestsRejected()
	IncFreezeVotes()
	IncUnfreezeVotes()
	IncDeclinedExecutes()
}

type metricsImpl struct {
	numWithdrawalsQueued,
	numWithdrawalsExecuted,
	numWithdrawalsCancelled,
	numSignaturesAdded,
	numRequestsApproved,
	numRequestsRejected,
	numFreezeVotes,
	numUnfreezeVotes,
	numDeclinedExecutes metric.Counter
}

func (m *metricsImpl) IncWithdrawalsQueued() {
	m.numWithdrawalsQueued.Inc()
}

func (m *metricsImpl) IncWithdrawalsExecuted() {
	m.numWithdrawalsExecuted.Inc()
}

func (m *metricsImpl) IncWithdrawalsCancelled() {
	m.numWithdrawalsCancelled.Inc()
}

func (m *metricsImpl) IncSignaturesAdded() {
	m.numSignaturesAdded.Inc()
}

func (m *metricsImpl) IncRequestsApproved() {
	m.numRequestsApproved.Inc()
}

func (m *metricsImpl) IncRequestsRejected() {
	m.numRequestsRejected.Inc()
}

func (m *metricsImpl) IncFreezeVotes() {
	m.numFreezeVotes.Inc()
}

func (m *metricsImpl) IncUnfreezeVotes() {
	m.numUnfreezeVotes.Inc()
}

func (m *metricsImpl) IncDeclinedExecutes() {
	m.numDeclinedExecutes.Inc()
}

// New builds the coordinator metrics. Counters self-register when created
// through metric.NewCounter; the registerer is accepted so callers can
// scope a registry per engine.
func New(metric.Registerer) (Metrics, error) {
	m := &metricsImpl{
		numWithdrawalsQueued: metric.NewCounter(metric.CounterOpts{
			Name: "withdrawals_queued",
			Help: "Number of withdrawals entered into the time-lock queue",
		}),
		numWithdrawalsExecuted: metric.NewCounter(metric.CounterOpts{
			Name: "withdrawals_executed",
			Help: "Number of withdrawals executed after maturation",
		}),
		numWithdrawalsCancelled: metric.NewCounter(metric.CounterOpts{
			Name: "withdrawals_cancelled",
			Help: "Number of withdrawals cancelled by the vault owner",
		}),
		numSignaturesAdded: metric.NewCounter(metric.CounterOpts{
			Name: "signatures_added",
			Help: "Number of guardian signatures accepted on pending requests",
		}),
		numRequestsApproved: metric.NewCounter(metric.CounterOpts{
			Name: "requests_approved",
			Help: "Number of signature requests that reached quorum",
		}),
		numRequestsRejected: metric.NewCounter(metric.CounterOpts{
			Name: "requests_rejected",
			Help: "Number of signature requests rejected while pending",
		}),
		numFreezeVotes: metric.NewCounter(metric.CounterOpts{
			Name: "freeze_votes",
			Help: "Number of guardian freeze votes cast",
		}),
		numUnfreezeVotes: metric.NewCounter(metric.CounterOpts{
			Name: "unfreeze_votes",
			Help: "Number of guardian unfreeze votes cast or retracted",
		}),
		numDeclinedExecutes: metric.NewCounter(metric.CounterOpts{
			Name: "declined_executes",
			Help: "Number of execute attempts declined because the time-lock is immature or the target is frozen",
		}),
	}
	return m, nil
}

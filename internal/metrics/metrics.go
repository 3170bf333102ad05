// Package metrics exposes Prometheus counters for the allocation engine.
// Counters are registered on the default registry; the router serves them
// on /metrics via promhttp.
package metrics

import (
    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
)

var (
    // SeatClaims counts successful seat claims and reassignments.
    SeatClaims = promauto.NewCounter(prometheus.CounterOpts{
        Name: "classseat_seat_claims_total",
        Help: "Successful seat claims and reassignments.",
    })

    // SeatConflicts counts claims rejected because the seat was occupied.
    SeatConflicts = promauto.NewCounter(prometheus.CounterOpts{
        Name: "classseat_seat_conflicts_total",
        Help: "Seat claims rejected due to an existing occupant.",
    })

    // ForceEvictions counts incumbents kicked by forced reassignment.
    ForceEvictions = promauto.NewCounter(prometheus.CounterOpts{
        Name: "classseat_force_evictions_total",
        Help: "Registrations evicted by a forced reassignment.",
    })

    // AutoAssignRuns counts completed auto-assignment passes.
    AutoAssignRuns = promauto.NewCounter(prometheus.CounterOpts{
        Name: "classseat_auto_assign_runs_total",
        Help: "Completed cohort auto-assignment passes.",
    })

    // AutoAssignSeated counts registrations seated by auto-assignment.
    AutoAssignSeated = promauto.NewCounter(prometheus.CounterOpts{
        Name: "classseat_auto_assign_seated_total",
        Help: "Registrations granted a seat by auto-assignment.",
    })

    // QueueReorders counts manual queue reorder operations.
    QueueReorders = promauto.NewCounter(prometheus.CounterOpts{
        Name: "classseat_queue_reorders_total",
        Help: "Manual waiting-queue reorder operations.",
    })
)

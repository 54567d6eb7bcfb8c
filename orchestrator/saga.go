package orchestrator

import "github.com/sirupsen/logrus"

// step is one forward action in a multi-step flow, paired with the
// action that undoes it. compensate may be nil when there is nothing
// to unwind.
type step struct {
	name       string
	run        func() error
	compensate func() error
}

// runSaga executes steps in order. On the first failure it runs the
// compensations of every completed step in reverse and returns the
// original error. Compensation is best-effort: a failed rollback is
// logged and the unwind continues, since a dangling reservation that
// reconciliation can find beats losing track of a real remote
// container.
func (o *Orchestrator) runSaga(flow string, steps []step) error {
	var done []step
	for _, st := range steps {
		if err := st.run(); err != nil {
			o.Logger.WithFields(logrus.Fields{
				"flow": flow,
				"step": st.name,
			}).WithError(err).Error("flow failed, compensating")
			for i := len(done) - 1; i >= 0; i-- {
				if done[i].compensate == nil {
					continue
				}
				if cerr := done[i].compensate(); cerr != nil {
					o.observe(flow, "compensation_failed")
					o.Logger.WithFields(logrus.Fields{
						"flow": flow,
						"step": done[i].name,
					}).WithError(cerr).Error("compensation failed")
				}
			}
			return err
		}
		done = append(done, st)
	}
	return nil
}

package dashboard_test

import (
	"errors"
	"testing"

	qt "github.com/frankban/quicktest"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/YelzhanWeb/menuapp/internal/app/dashboard"
	"github.com/YelzhanWeb/menuapp/internal/domain"
)

func gathered(c *qt.C, reg *prometheus.Registry) map[string]float64 {
	families, err := reg.Gather()
	c.Assert(err, qt.IsNil)

	out := make(map[string]float64)
	for _, f := range families {
		for _, m := range f.GetMetric() {
			key := f.GetName()
			for _, l := range m.GetLabel() {
				key += "," + l.GetName() + "=" + l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			}
		}
	}
	return out
}

func TestMetricsCollector(t *testing.T) {
	c := qt.New(t)
	collector := dashboard.NewMetricsCollector()
	reg := prometheus.NewPedanticRegistry()
	c.Assert(reg.Register(collector), qt.IsNil)

	collector.Mounted(domain.RoleWaiter)
	collector.Mounted(domain.RoleWaiter)
	collector.Unmounted(domain.RoleWaiter)
	collector.ChangeReceived(domain.RoleChef, domain.TableOrderItems)
	collector.NotificationCoalesced(domain.RoleChef)
	collector.FetchCompleted(domain.RoleChef, nil)
	collector.FetchCompleted(domain.RoleChef, errors.New("boom"))
	collector.StaleFetchDiscarded(domain.RoleChef)

	got := gathered(c, reg)
	c.Check(got["menu_dashboard_mounted,role=waiter"], qt.Equals, 1.0)
	c.Check(got["menu_dashboard_change_events_total,role=chef,table=order_items"], qt.Equals, 1.0)
	c.Check(got["menu_dashboard_coalesced_notifications_total,role=chef"], qt.Equals, 1.0)
	c.Check(got["menu_dashboard_refetches_total,result=ok,role=chef"], qt.Equals, 1.0)
	c.Check(got["menu_dashboard_refetches_total,result=error,role=chef"], qt.Equals, 1.0)
	c.Check(got["menu_dashboard_stale_fetches_total,role=chef"], qt.Equals, 1.0)
}

// Package metrics exports morph runtime activity to Prometheus.
//
// A Collector observes both the component runtime (renders, hook failures,
// registry evictions) and the patcher (individual tree mutations), and the
// live server reports session activity through it.
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(metrics.WithRegistry(reg))
//	rt := component.New(
//	    component.WithObserver(m),
//	    component.WithPatchObserver(m),
//	)
//	http.Handle("/metrics", m.Handler())
package metrics

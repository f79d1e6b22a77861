// Package probe runs scripted WebSocket test scenarios against a server.
//
// A suite is a YAML document listing scenarios; each scenario dials an
// endpoint and walks through send/expect steps with per-step timeouts.
// Every scenario run is tagged with a UUID and tallied into a Summary.
//
// Example suite:
//
//	base_url: 127.0.0.1:3000
//	preflight: /health
//	scenarios:
//	  - name: echo
//	    url: /ws/echo
//	    steps:
//	      - send: ping
//	        expect: ping
//	        within: 2s
//
// Scenario failures are recorded, not returned as errors: the runner is
// built for long test runs where one misbehaving endpoint must not stop
// the rest of the suite.
package probe

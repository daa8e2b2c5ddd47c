/*
Package resilience provides circuit breakers for outbound transfers.

A Breaker moves between three states:

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed
	                                           |
	                                    [failure]
	                                           |
	                                           v
	                                         Open

A Group keeps one breaker per remote host so a failing server does not stop
transfers to healthy ones.

# Usage

	breakers := resilience.NewGroup(resilience.Settings{
		MaxRequests: 2,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(c resilience.Counts) bool {
			return c.ConsecutiveFailures >= 5
		},
	})

	err := breakers.Do(u.Host, func() error {
		return download(ctx, u)
	})
*/
package resilience

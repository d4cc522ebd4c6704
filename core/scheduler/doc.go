// Package scheduler fires a periodic full sync on a cron expression.
package scheduler

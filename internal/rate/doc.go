// Package rate implements the fixed-window request governor and the
// per-identifier failed-login limiter over Redis counters. INCR plus a
// first-hit EXPIRE gives atomic counting under concurrency; counters do not
// exist until first use and vanish when the window elapses.
package rate

// Package sync exposes sync runs over HTTP.
//
// Routes:
//   - GET  /institutions                   registered institutions
//   - POST /sync                           sync every institution
//   - POST /sync/:institution              sync one institution
//   - GET  /sync/:institution/status       latest run per category, runs in flight
//   - GET  /sync/:institution/history      recent runs (?limit=)
//   - GET  /sync/:institution/snapshots    archived fetches (?category=)
//
// POST requests accept ?category=course,section to narrow the run. They are
// answered with 202 and run in the background unless ?wait=true is given, in
// which case the finished runs are returned.
//
// A request for a pair that is already running is answered with 409, an
// unknown institution with 404 and an unsupported category with 400.
package sync

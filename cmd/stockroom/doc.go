// Command stockroom runs the inventory API and its operator tasks.
//
//	stockroom serve              # HTTP + gRPC health + in-process workers
//	stockroom queue:work         # workers only (needs QUEUE_DRIVER=redis)
//	stockroom queue:failed       # list archived jobs
//	stockroom queue:retry 7      # re-enqueue archived job 7
//	stockroom migrate            # run migrations
//	stockroom migrate:rollback
//	stockroom migrate:status
//	stockroom seed               # demo user, admin and sample inventory
//	stockroom route:list         # list API routes
//
// Configuration is read from config/app.json, then .env, then the process
// environment.
package main

// Package harness runs recording scenarios against a real Session.
//
// A scenario drives a Session through task switches, recorded calls, clock
// advances and cleanup, then checks the resulting trace and the database
// files left on disk. Each run gets its own settings and storage
// directories, a fake clock starting at a fixed instant and a sequential
// identity generator, so traces are stable enough for golden files.
//
// # Scenario Format
//
//	name: throttled_saves
//	description: "Records inside the save window stay in memory"
//	savefreq: 2
//	steps:
//	  - task: { project: proj1, task: taskA }
//	  - object: m1
//	  - record: numpy.dot
//	    args: [$m1, 3]
//	    kwargs: { out: null }
//	    returns: $m1
//	  - advance: 3m
//	  - writable: false
//	  - save: true
//	  - cleanup: true
//	  - remove_storage: true
//	assertions:
//	  - type: entry_count
//	    database: proj1.taskA
//	    entity: numpy.dot
//	    count: 1
//	  - type: trace_order
//	    ops: [record, cleanup]
//
// Values written as "$name" refer to an object created by an earlier
// object step. All other values are passed to the Session as the decoded
// YAML values, so lists and maps of primitives are summarized the same way
// a live call would summarize them.
package harness

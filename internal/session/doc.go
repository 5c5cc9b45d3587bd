// Package session holds the recording state of one process: the active
// project and task, the writable flag, the storage directory, the shared
// object tracker and every task database opened so far.
//
// Producers hand finished calls to Record (or RecordCall, which renders raw
// Go values through the tracker first). The session routes each call to the
// task database of the currently selected (project, task), opening it on
// first use, and lets that database decide whether a write is due. Cleanup
// force-saves every open database and reports each outcome separately.
//
// Changing the task, writable flag or storage directory only affects later
// calls. Databases already open keep their file paths.
package session

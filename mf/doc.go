// Package mf implements the Message-Passing Facility: a pool of named,
// fixed-capacity message queues carved out of a single SysV shared-memory
// segment, synchronized across unrelated processes with SysV semaphore
// sets. One process runs Init/Destroy (the server); any process that has
// attached may create, open, send to, receive from, and close queues.
package mf

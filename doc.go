/*
Package pedals runs a board of real-time audio effects controlled with
MIDI.

Concept

The board is driven by two audio callbacks: capture delivers recorded
frames and render asks for frames to play. They are invoked by the audio
driver, potentially at the same time on different threads, so they are
decoupled by a lock-free transport: a ring of samples that holds the
latency budget. The render callback takes the frame from the transport,
processes it with the unit graph and writes the result to the output.

    capture -> transport -> render -> unit graph -> output

Control

MIDI events are delivered by a separate listener. Every render call first
takes all events received since the previous call and passes them to the
graph. Effects translate events into commands for their units, and units
apply the commands at the start of their next processing call. Nothing in
the render path blocks.

Faults

Transport overruns and underruns, dropped commands and unit faults never
stop the audio. They are counted and logged, and the callback still
returns a complete frame.
*/
package pedals

// Package audio downloads episode audio into a scratch directory and splits
// it into fixed-length segments for speech-to-text.
//
// Segment planning is pure (PlanSegments); materialization shells out to
// ffmpeg through a replaceable command runner, and duration comes from
// ffprobe. Every file this package creates is owned by a single episode and
// is removed through Scratch.Release when the episode finishes, whatever the
// outcome.
package audio

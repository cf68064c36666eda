// Command clipforge is the CLI and daemon entry point for the clip
// processing pipeline: enqueue clips, run one-shot jobs, drive the
// background workflow, and inspect environment health.
package main

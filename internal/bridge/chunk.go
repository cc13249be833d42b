// ABOUTME: Chunked delivery splitting a reply to the transport size limit
// ABOUTME: Sends chunks strictly in order with a fixed delay after each send

package bridge

import (
	"context"
	"fmt"
)

// splitChunks cuts s into contiguous pieces of at most size bytes, in
// order, with no reflow. Concatenating the result reproduces s exactly.
// An empty input yields no chunks.
func splitChunks(s string, size int) []string {
	if s == "" || size <= 0 {
		return nil
	}

	chunks := make([]string, 0, (len(s)+size-1)/size)
	for len(s) > size {
		chunks = append(chunks, s[:size])
		s = s[size:]
	}
	return append(chunks, s)
}

// deliver sends the response as ordered chunks, pausing ChunkDelay
// after each send to respect outbound rate limits. Chunk n+1 is not
// sent until chunk n's send returned.
func (b *Bridge) deliver(ctx context.Context, conversationID, response string) error {
	chunks := splitChunks(response, b.opts.ChunkSize)

	for i, chunk := range chunks {
		if err := b.chat.Reply(ctx, conversationID, chunk); err != nil {
			return fmt.Errorf("sending chunk %d/%d: %w", i+1, len(chunks), err)
		}
		if err := sleepCtx(ctx, b.opts.ChunkDelay); err != nil {
			return err
		}
	}

	b.logger.Info("delivered response", "conversation", conversationID, "chunks", len(chunks))
	return nil
}

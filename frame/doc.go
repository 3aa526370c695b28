// Package frame reassembles newline-delimited records from a byte stream.
//
// TCP delivers bytes, not lines: one read may hold half a sentence, or three
// sentences and the start of a fourth. An Assembler keeps the bytes that have
// not yet been terminated by '\n' and, after every read, returns each record
// completed so far in delimiter order.
//
//	asm := frame.NewAssembler(frame.Options{MaxChunk: 4096})
//	for {
//	    records, err := asm.Pull(conn)
//	    for _, r := range records {
//	        handle(r)
//	    }
//	    if err != nil {
//	        asm.Reset() // partial data never survives a reconnect
//	        break
//	    }
//	}
//
// Only the delimiter is removed. A trailing '\r' from CRLF-terminated sources
// stays in the record; trimming is the dispatcher's job.
//
// An Assembler is not safe for concurrent use. It is owned by the single
// goroutine reading the connection.
package frame

package mcpserver

// NoteFormat describes the Markdown layout produced by read_note and the
// export endpoint, and accepted by the Markdown import endpoint.
const NoteFormat = `# Echo Notes Markdown Format

` + "```" + `markdown
---
id: 01JB8ZK6Q4V3X2N7M5R9T1W0YC     # set by the server, ignored on import
title: milk                         # first keyword after cleanup
date: 2025-03-01T09:30:00Z          # creation time, RFC 3339
keywords:                           # usually three, may be empty
  - milk
  - shopping
  - reminder
stashed: true                       # omitted when false
---

Remember to buy milk.
` + "```" + `

## Rules

1. The frontmatter block is optional on import. Without a ` + "`" + `title` + "`" + ` the first
   ` + "`" + `# Heading` + "`" + ` line is used and removed from the content.
2. Inline ` + "`" + `#tags` + "`" + ` in the body are added to the keywords on import.
3. The body is the note content verbatim. It must not be empty.
4. A note titled ` + "`" + `Processing...` + "`" + ` is still waiting for cleanup; its content is the raw transcript.
5. Encoding is UTF-8 with a trailing newline.
`

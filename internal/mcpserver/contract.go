package mcpserver

const fence = "```"

// ContentFormatContract describes the post format that LLM consumers
// should follow when drafting posts.
const ContentFormatContract = `# folio Post Format Contract

Every post is a single ` + "`<slug>.mdx`" + ` file in the content directory. The file
name without its extension is the slug.

## Structure

` + fence + `markdown
---
title: Human-readable title         # REQUIRED
description: One-sentence summary   # REQUIRED
date: 2025-01-15                    # REQUIRED, ISO-8601 date or datetime
topic: databases                    # REQUIRED
image: /img/cover.png               # REQUIRED
draft: false                        # OPTIONAL, drafts are hidden in production
kind: prose                         # OPTIONAL, "steps" or "prose"
---

Body text in Markdown.
` + fence + `

## Rules

1. The frontmatter block is delimited by ` + "`---`" + ` lines and must open the file.
2. Posts are listed newest first by ` + "`date`" + `. Equal dates keep directory order.
3. A post whose body opens with ` + "`## !!steps`" + ` is a scrolly post. Each
   ` + "`!!steps`" + ` heading starts one step; its content runs to the next heading of the
   same or higher level.
4. ` + "`!!`" + ` headings other than ` + "`!!steps`" + ` are rejected.
5. Code lines can be annotated with a comment line directly above them:
   ` + "`// !mark`" + `, ` + "`// !mark(3)`" + ` or ` + "`// !focus(2:4)`" + `. Use the comment
   syntax of the block's language (` + "`//`, `#`, `--`, `/* */`, `<!-- -->`" + `). Only
   ` + "`mark`" + ` and ` + "`focus`" + ` exist, and ranges may not run past the block.
6. Encoding is UTF-8 with a trailing newline.

## Example

` + fence + `markdown
---
title: Building a B-tree
description: Step through inserts one node at a time.
date: 2025-01-20
topic: databases
image: /img/btree.png
---

## !!steps Start empty

The tree has a single leaf.

## !!steps Split the root

` + fence + `go
// !mark(2)
if len(n.keys) > order {
	n.split()
}
` + fence + `
` + fence + `
`

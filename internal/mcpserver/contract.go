package mcpserver

// MetadataContract describes the metadata block subset the kiln parser
// accepts. Documents outside it still build, but render without metadata.
const MetadataContract = `# kiln Metadata Format Contract

A document may start with a metadata block between two ` + "`---`" + ` lines.
Everything after the closing line is the Markdown body.

` + "```" + `markdown
---
title: Hello, world
description: "Quoted strings keep: colons and # hashes"
draft: false
weight: 10
tags: [go, "qwik city"]
navigation:
  key: Hello
  order: [1, 2]
---

# Body
` + "```" + `

## Values

- **Strings** are bare text to the end of the line, or quoted with ` + "`\"`" + ` or ` + "`'`" + `.
  Bare strings may contain commas.
- **Numbers** are an optional ` + "`-`" + `, digits and at most one ` + "`.`" + ` followed by digits.
  Anything else (` + "`1.2.3`" + `, ` + "`3rd`" + `) is a string.
- **Booleans** are ` + "`true`" + `, ` + "`false`" + `, ` + "`YES`" + ` and ` + "`NO`" + `.
  Only ` + "`draft: true`" + ` marks a draft.
- **Null** is ` + "`NULL`" + ` (upper case) or a key with no value. It is emitted as ` + "`undefined`" + `.
- **Lists** are ` + "`[a, b]`" + ` on one or more lines, or ` + "`- item`" + ` lines indented under the key.
- **Objects** are ` + "`{a: 1}`" + `, or ` + "`key: value`" + ` lines indented under the key.
  A list item may itself be an object: ` + "`- name: Ada`" + ` followed by
  ` + "`  url: https://ada.dev`" + ` aligned with ` + "`name`" + `.

Indentation counts a space as one column and a tab as two.

## Keys kiln reads

1. ` + "`title`" + `: shown in listings.
2. ` + "`tags`" + `: a list. Each entry that starts with a letter and contains only
   letters, digits, ` + "`-`" + `, ` + "`_`" + ` and spaces puts the document in that collection.
3. ` + "`draft`" + `: ` + "`true`" + ` keeps the document out of the build unless drafts are included.

Only top-level keys count; the first occurrence wins.

## Not supported

Anchors, aliases, multi-line block scalars (` + "`|`" + `, ` + "`>`" + `), comments and
multiple documents. A block the parser rejects is reported as a parse error and
the page is rendered without metadata.
`

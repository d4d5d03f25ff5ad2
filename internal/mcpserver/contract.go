package mcpserver

// MarkupContract describes the artifact source format so LLM consumers can
// write fragments for render_markup or whole artifact files.
const MarkupContract = `# Vos Artifact Format

An artifact is a UTF-8 .txt file: header lines, a separator line, then
markup content.

` + "```" + `text
name: Parser                       // REQUIRED, unique ignoring case
title: The **two pass** parser     // title markup: bold, italic, @[links], %[code]
image: parser/cover.png            // relative to the image CDN directory
imageName: Drawn for @[Home]
tags: code, tools                  // comma separated, lowercased
links: [Source](https://example.com), ![Notes](notes.pdf)
===
# Heading
Body markup.
` + "```" + `

"//" starts a comment to the end of the line unless escaped ("\//") or
part of a URL scheme.

## Block markup

| Syntax | Result |
|---|---|
| ` + "`# text`" + ` | heading |
| ` + "`## text`" + ` | subheading |
| ` + "`> text`" + ` | quote, until a blank line |
| ` + "`- item`" + ` | condensed list |
| ` + "`1. item`" + ` | spacious list |
| ` + "`---`" + ` | divider |
| three backticks | code block |
| ` + "`=[tag]`" + ` | list of links to every page tagged tag |
| ` + "`-[tag]`" + ` | same, with titles |

## Inline markup

| Syntax | Result |
|---|---|
| ` + "`**text**`" + ` / ` + "`*text*`" + ` | bold / italic |
| backticks | inline code |
| ` + "`@[Name]`" + ` | link to another artifact |
| ` + "`&[Name]`" + ` | card linking to another artifact, with its image |
| ` + "`[label](url)`" + ` | external link |
| ` + "`![alt](file.png)`" + ` | image, video (.mp4 .mov), audio (.mp3 .wav) or file |
| ` + "`?[N]`" + ` | cards for the N most recently updated pages |
| ` + "`*[N]`" + ` | the first N rows of the productivity log |
| ` + "`%[expr]`" + ` | inline expression, evaluated at build time |

A backslash escapes any trigger character.

## Inline expressions

Functions available inside ` + "`%[...]`" + ` (project arguments are optional
and match case-insensitively):

- logHours(project), logDays(project), logCount(project), hoursPerDay(project)
- firstDate(project), lastDate(project), dateRange(project)
- divisionHours(division, project), division is Abstract, Audio, Code or Visual
- artifactCount(tag), pageCount()

String arguments may use single or double quotes.
`

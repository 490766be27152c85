// Command podenrich enriches podcast episodes from a feed and writes one row
// per episode to an analytical table.
//
//	podenrich run --feed https://example.com/feed.xml --max 10
//	podenrich status
//	podenrich check
//	podenrich config init
package main

package youtube

import (
	"fmt"
	"strings"
)

const testChannelID = "UCabcdefghijklmnopqrstuv"

type testEntry struct {
	id      string
	videoID string
	title   string
	link    string
}

func atomFeed(channelID string, entries ...testEntry) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns:yt="http://www.youtube.com/xml/schemas/2015" xmlns:media="http://search.yahoo.com/mrss/" xmlns="http://www.w3.org/2005/Atom">
 <id>yt:channel:` + channelID + `</id>
 <yt:channelId>` + channelID + `</yt:channelId>
 <title>Test Channel</title>
 <author><name>Test Channel</name><uri>https://www.youtube.com/channel/` + channelID + `</uri></author>
 <published>2020-01-01T00:00:00+00:00</published>
`)
	for i, e := range entries {
		b.WriteString(" <entry>\n")
		if e.id != "" {
			fmt.Fprintf(&b, "  <id>%s</id>\n", e.id)
		}
		if e.videoID != "" {
			fmt.Fprintf(&b, "  <yt:videoId>%s</yt:videoId>\n", e.videoID)
		}
		fmt.Fprintf(&b, "  <yt:channelId>%s</yt:channelId>\n", channelID)
		fmt.Fprintf(&b, "  <title>%s</title>\n", e.title)
		if e.link != "" {
			fmt.Fprintf(&b, "  <link rel=\"alternate\" href=\"%s\"/>\n", e.link)
		}
		fmt.Fprintf(&b, "  <published>2024-01-%02dT10:00:00+00:00</published>\n", 28-i)
		b.WriteString(" </entry>\n")
	}
	b.WriteString("</feed>\n")
	return b.String()
}

// Package marketplace embeds the marketplace catalog in a Go program. It talks
// to Redis directly and applies the same visibility rules as the HTTP API.
//
//	client, _ := marketplace.New(ctx, marketplace.WithRedis("localhost:6379", ""))
//	defer client.Close()
//
//	me := client.As(marketplace.Caller{
//	    PersonID: "3b8f6a52-1d7e-4c90-a4f2-6e1d0b9c7a11",
//	    Projects: map[string]marketplace.Level{projectID: marketplace.Developer},
//	})
//	found, _ := me.Search(ctx, &marketplace.SearchRequest{Tags: []string{"NLP"}}, marketplace.PageOf(0, 20))
//	ranked, _ := client.As(marketplace.Visitor()).SearchText(ctx, "image resize", true, marketplace.PageOf(0, 20))
package marketplace

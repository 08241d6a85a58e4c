// Package indexgate is a Go client for the indexgate HTTP API.
//
// # Administration
//
//	client, _ := indexgate.New("http://localhost:8080", indexgate.WithAdminKey(secret))
//	id, _ := client.Admin().CreateMapping(ctx, "", indexgate.Mapping{
//	    Name:   "products",
//	    Fields: []indexgate.Field{{Field: "title", Type: "text", Sort: true}},
//	})
//	_, _ = client.Admin().Activate(ctx, id)
//	key, _ := client.Admin().CreateKey(ctx, "", indexgate.Key{
//	    Name: "shop", Access: indexgate.ReadWrite, Indexes: []string{id},
//	})
//
// # Tenant sessions
//
//	session, _ := client.Login(ctx, key)
//	docs := session.Index(id).Documents("product")
//	_, _ = docs.Put(ctx, "p1", map[string]any{"title": "Banana"})
//	res, _ := docs.Search(ctx, map[string]any{"sort": "title"})
package indexgate

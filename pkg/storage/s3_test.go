package storage

import (
	"context"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedClient serves a fixed sequence of listing pages, linked by
// continuation tokens.
type pagedClient struct {
	s3API
	pages []*s3.ListObjectsV2Output
	calls int
}

func (c *pagedClient) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	c.calls++
	i := 0
	if in.ContinuationToken != nil {
		i, _ = strconv.Atoi(aws.ToString(in.ContinuationToken))
	}
	page := *c.pages[i]
	if i+1 < len(c.pages) {
		page.IsTruncated = aws.Bool(true)
		page.NextContinuationToken = aws.String(strconv.Itoa(i + 1))
	}
	return &page, nil
}

func objects(keys ...string) []types.Object {
	out := make([]types.Object, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Object{Key: aws.String(k)})
	}
	return out
}

func prefixes(keys ...string) []types.CommonPrefix {
	out := make([]types.CommonPrefix, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.CommonPrefix{Prefix: aws.String(k)})
	}
	return out
}

func TestS3Storage_ListFollowsPages(t *testing.T) {
	client := &pagedClient{pages: []*s3.ListObjectsV2Output{
		{Contents: objects("root/agents/delta.md", "root/agents/alpha.md"), CommonPrefixes: prefixes("root/agents/team/")},
		{Contents: objects("root/agents/charlie.md"), CommonPrefixes: prefixes("root/agents/extra/")},
		{Contents: objects("root/agents/bravo.md")},
	}}
	s := &S3Storage{client: client, bucket: "bucket", prefix: "root/"}

	paths, err := s.List(context.Background(), "agents")
	require.NoError(t, err)
	assert.Equal(t, []string{"agents/alpha.md", "agents/bravo.md", "agents/charlie.md", "agents/delta.md"}, paths)
	assert.Equal(t, 3, client.calls)

	client.calls = 0
	dirs, err := s.ListDirs(context.Background(), "agents")
	require.NoError(t, err)
	assert.Equal(t, []string{"extra", "team"}, dirs)
	assert.Equal(t, 3, client.calls)
}

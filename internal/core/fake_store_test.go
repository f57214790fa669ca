package core

import (
	"context"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/hunghnUIT/seft-203/internal/database"
)

// fakeStore reproduces the gateway contract in memory: exact-match get,
// whole-item put, patch-fails-on-missing, idempotent delete, and
// prefix queries in ascending sort-key order.
type fakeStore struct {
	items map[string]map[string]map[string]types.AttributeValue // pk -> sk -> item
	err   error
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: map[string]map[string]map[string]types.AttributeValue{}}
}

func (f *fakeStore) partition(pk string) map[string]map[string]types.AttributeValue {
	if f.items[pk] == nil {
		f.items[pk] = map[string]map[string]types.AttributeValue{}
	}
	return f.items[pk]
}

func (f *fakeStore) Get(_ context.Context, pk, sk string, out any) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	item, ok := f.partition(pk)[sk]
	if !ok {
		return false, nil
	}
	return true, attributevalue.UnmarshalMap(item, out)
}

func (f *fakeStore) Put(_ context.Context, pk, sk string, item any) error {
	if f.err != nil {
		return f.err
	}
	m, err := attributevalue.MarshalMap(item)
	if err != nil {
		return err
	}
	f.partition(pk)[sk] = m
	return nil
}

func (f *fakeStore) Patch(_ context.Context, pk, sk string, fields map[string]any, out any) error {
	if f.err != nil {
		return f.err
	}
	item, ok := f.partition(pk)[sk]
	if !ok {
		return database.ErrNotFound
	}
	for name, value := range fields {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return err
		}
		item[name] = av
	}
	if out != nil {
		return attributevalue.UnmarshalMap(item, out)
	}
	return nil
}

func (f *fakeStore) Delete(_ context.Context, pk, sk string) error {
	if f.err != nil {
		return f.err
	}
	delete(f.partition(pk), sk)
	return nil
}

func (f *fakeStore) QueryPrefix(_ context.Context, pk, skPrefix string, out any) error {
	if f.err != nil {
		return f.err
	}
	return f.collect(pk, func(sk string, _ map[string]types.AttributeValue) bool {
		return strings.HasPrefix(sk, skPrefix)
	}, out)
}

func (f *fakeStore) QueryIndexPrefix(_ context.Context, pk, indexPrefix string, out any) error {
	if f.err != nil {
		return f.err
	}
	return f.collect(pk, func(_ string, item map[string]types.AttributeValue) bool {
		attr, ok := item["userChecked"].(*types.AttributeValueMemberS)
		return ok && strings.HasPrefix(attr.Value, indexPrefix)
	}, out)
}

func (f *fakeStore) collect(pk string, match func(sk string, item map[string]types.AttributeValue) bool, out any) error {
	partition := f.partition(pk)
	keys := make([]string, 0, len(partition))
	for sk := range partition {
		keys = append(keys, sk)
	}
	sort.Strings(keys)

	var items []map[string]types.AttributeValue
	for _, sk := range keys {
		if match(sk, partition[sk]) {
			items = append(items, partition[sk])
		}
	}
	return attributevalue.UnmarshalListOfMaps(items, out)
}

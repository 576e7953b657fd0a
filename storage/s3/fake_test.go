package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// fakeObject is one stored object with its headers.
type fakeObject struct {
	data               []byte
	contentType        string
	cacheControl       string
	contentEncoding    string
	contentDisposition string
	contentLanguage    string
	metadata           map[string]string
	storageClass       string
	sse                string
	lastModified       time.Time
	etag               string
}

// fakeUpload is one in-progress multipart session.
type fakeUpload struct {
	key   string
	parts map[int32][]byte
	meta  fakeObject
}

// fakeAPI is an in-memory ObjectAPI and PresignAPI. Error hooks let tests
// inject failures per operation.
type fakeAPI struct {
	mu      sync.Mutex
	objects map[string]*fakeObject
	uploads map[string]*fakeUpload

	// pageSize caps keys per ListObjectsV2 page; zero means unlimited.
	pageSize int

	putErr  func(key string) error
	headErr func(key string) error
	getErr  func(key string) error
	listErr error
	copyErr func(key string) error
	// partErr is consulted per UploadPart call with the running attempt
	// count for that part.
	partErr func(num int32, attempt int) error

	nextUploadID int
	abortedIDs   []string
	partAttempts map[string]int
	presignCalls int
	copyCalls    int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		objects:      make(map[string]*fakeObject),
		uploads:      make(map[string]*fakeUpload),
		partAttempts: make(map[string]int),
	}
}

func (f *fakeAPI) put(key string, obj *fakeObject) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if obj.lastModified.IsZero() {
		obj.lastModified = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	}
	if obj.etag == "" {
		obj.etag = fmt.Sprintf("etag-%d", len(f.objects))
	}
	f.objects[key] = obj
}

func (f *fakeAPI) object(key string) (*fakeObject, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	obj, ok := f.objects[key]
	return obj, ok
}

// --- ObjectAPI ---

func (f *fakeAPI) PutObject(_ context.Context, in *awss3.PutObjectInput, _ ...func(*awss3.Options)) (*awss3.PutObjectOutput, error) {
	key := aws.ToString(in.Key)
	if f.putErr != nil {
		if err := f.putErr(key); err != nil {
			return nil, err
		}
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	obj := &fakeObject{
		data:               data,
		contentType:        aws.ToString(in.ContentType),
		cacheControl:       aws.ToString(in.CacheControl),
		contentEncoding:    aws.ToString(in.ContentEncoding),
		contentDisposition: aws.ToString(in.ContentDisposition),
		contentLanguage:    aws.ToString(in.ContentLanguage),
		metadata:           in.Metadata,
		storageClass:       string(in.StorageClass),
		sse:                string(in.ServerSideEncryption),
	}
	f.put(key, obj)
	return &awss3.PutObjectOutput{ETag: aws.String(f.objects[key].etag)}, nil
}

func (f *fakeAPI) GetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.Options)) (*awss3.GetObjectOutput, error) {
	key := aws.ToString(in.Key)
	if f.getErr != nil {
		if err := f.getErr(key); err != nil {
			return nil, err
		}
	}
	obj, ok := f.object(key)
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	out := &awss3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentLength: aws.Int64(int64(len(obj.data))),
	}
	if obj.contentEncoding != "" {
		out.ContentEncoding = aws.String(obj.contentEncoding)
	}
	return out, nil
}

func (f *fakeAPI) HeadObject(_ context.Context, in *awss3.HeadObjectInput, _ ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error) {
	key := aws.ToString(in.Key)
	if f.headErr != nil {
		if err := f.headErr(key); err != nil {
			return nil, err
		}
	}
	obj, ok := f.object(key)
	if !ok {
		return nil, &types.NotFound{}
	}
	out := &awss3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		LastModified:  aws.Time(obj.lastModified),
		Metadata:      obj.metadata,
		ETag:          aws.String(obj.etag),
	}
	if obj.contentType != "" {
		out.ContentType = aws.String(obj.contentType)
	}
	if obj.cacheControl != "" {
		out.CacheControl = aws.String(obj.cacheControl)
	}
	if obj.contentEncoding != "" {
		out.ContentEncoding = aws.String(obj.contentEncoding)
	}
	if obj.contentDisposition != "" {
		out.ContentDisposition = aws.String(obj.contentDisposition)
	}
	if obj.contentLanguage != "" {
		out.ContentLanguage = aws.String(obj.contentLanguage)
	}
	return out, nil
}

func (f *fakeAPI) DeleteObject(_ context.Context, in *awss3.DeleteObjectInput, _ ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, aws.ToString(in.Key))
	return &awss3.DeleteObjectOutput{}, nil
}

func (f *fakeAPI) ListObjectsV2(_ context.Context, in *awss3.ListObjectsV2Input, _ ...func(*awss3.Options)) (*awss3.ListObjectsV2Output, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	prefix := aws.ToString(in.Prefix)
	delimiter := aws.ToString(in.Delimiter)

	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	start := 0
	if tok := aws.ToString(in.ContinuationToken); tok != "" {
		start, _ = strconv.Atoi(tok)
	}

	var contents []types.Object
	prefixSet := map[string]bool{}
	var commonPrefixes []types.CommonPrefix
	i := start
	emitted := 0
	for ; i < len(keys); i++ {
		if f.pageSize > 0 && emitted >= f.pageSize {
			break
		}
		k := keys[i]
		if delimiter != "" {
			rest := strings.TrimPrefix(k, prefix)
			if idx := strings.Index(rest, delimiter); idx >= 0 {
				cp := prefix + rest[:idx+1]
				if !prefixSet[cp] {
					prefixSet[cp] = true
					commonPrefixes = append(commonPrefixes, types.CommonPrefix{Prefix: aws.String(cp)})
					emitted++
				}
				continue
			}
		}
		obj := f.objects[k]
		contents = append(contents, types.Object{
			Key:          aws.String(k),
			Size:         aws.Int64(int64(len(obj.data))),
			LastModified: aws.Time(obj.lastModified),
		})
		emitted++
	}

	out := &awss3.ListObjectsV2Output{
		Contents:       contents,
		CommonPrefixes: commonPrefixes,
		IsTruncated:    aws.Bool(i < len(keys)),
	}
	if i < len(keys) {
		out.NextContinuationToken = aws.String(strconv.Itoa(i))
	}
	return out, nil
}

func (f *fakeAPI) CopyObject(_ context.Context, in *awss3.CopyObjectInput, _ ...func(*awss3.Options)) (*awss3.CopyObjectOutput, error) {
	key := aws.ToString(in.Key)
	if f.copyErr != nil {
		if err := f.copyErr(key); err != nil {
			return nil, err
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.copyCalls++

	src, ok := f.objects[key]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	if in.MetadataDirective == types.MetadataDirectiveReplace {
		src.contentType = aws.ToString(in.ContentType)
		src.cacheControl = aws.ToString(in.CacheControl)
		src.contentEncoding = aws.ToString(in.ContentEncoding)
		src.contentDisposition = aws.ToString(in.ContentDisposition)
		src.contentLanguage = aws.ToString(in.ContentLanguage)
		src.metadata = in.Metadata
		src.storageClass = string(in.StorageClass)
		src.sse = string(in.ServerSideEncryption)
	}
	return &awss3.CopyObjectOutput{}, nil
}

func (f *fakeAPI) CreateMultipartUpload(_ context.Context, in *awss3.CreateMultipartUploadInput, _ ...func(*awss3.Options)) (*awss3.CreateMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextUploadID++
	id := fmt.Sprintf("upload-%d", f.nextUploadID)
	f.uploads[id] = &fakeUpload{
		key:   aws.ToString(in.Key),
		parts: make(map[int32][]byte),
		meta: fakeObject{
			contentType:        aws.ToString(in.ContentType),
			cacheControl:       aws.ToString(in.CacheControl),
			contentDisposition: aws.ToString(in.ContentDisposition),
			contentLanguage:    aws.ToString(in.ContentLanguage),
			metadata:           in.Metadata,
			storageClass:       string(in.StorageClass),
			sse:                string(in.ServerSideEncryption),
		},
	}
	return &awss3.CreateMultipartUploadOutput{UploadId: aws.String(id)}, nil
}

func (f *fakeAPI) UploadPart(_ context.Context, in *awss3.UploadPartInput, _ ...func(*awss3.Options)) (*awss3.UploadPartOutput, error) {
	id := aws.ToString(in.UploadId)
	num := aws.ToInt32(in.PartNumber)

	f.mu.Lock()
	attemptKey := fmt.Sprintf("%s/%d", id, num)
	f.partAttempts[attemptKey]++
	attempt := f.partAttempts[attemptKey]
	f.mu.Unlock()

	if f.partErr != nil {
		if err := f.partErr(num, attempt); err != nil {
			return nil, err
		}
	}

	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	up, ok := f.uploads[id]
	if !ok {
		return nil, &types.NoSuchUpload{}
	}
	up.parts[num] = data
	return &awss3.UploadPartOutput{ETag: aws.String(fmt.Sprintf("part-%d", num))}, nil
}

func (f *fakeAPI) CompleteMultipartUpload(_ context.Context, in *awss3.CompleteMultipartUploadInput, _ ...func(*awss3.Options)) (*awss3.CompleteMultipartUploadOutput, error) {
	f.mu.Lock()
	id := aws.ToString(in.UploadId)
	up, ok := f.uploads[id]
	if !ok {
		f.mu.Unlock()
		return nil, &types.NoSuchUpload{}
	}
	delete(f.uploads, id)
	f.mu.Unlock()

	var data []byte
	for _, part := range in.MultipartUpload.Parts {
		data = append(data, up.parts[aws.ToInt32(part.PartNumber)]...)
	}
	obj := up.meta
	obj.data = data
	f.put(up.key, &obj)
	return &awss3.CompleteMultipartUploadOutput{ETag: aws.String("multipart-etag")}, nil
}

func (f *fakeAPI) AbortMultipartUpload(_ context.Context, in *awss3.AbortMultipartUploadInput, _ ...func(*awss3.Options)) (*awss3.AbortMultipartUploadOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := aws.ToString(in.UploadId)
	delete(f.uploads, id)
	f.abortedIDs = append(f.abortedIDs, id)
	return &awss3.AbortMultipartUploadOutput{}, nil
}

// --- PresignAPI ---

func (f *fakeAPI) PresignGetObject(_ context.Context, in *awss3.GetObjectInput, _ ...func(*awss3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.presignCalls++
	url := fmt.Sprintf("https://%s.s3.example.com/%s?X-Amz-Signature=sig-%d",
		aws.ToString(in.Bucket), aws.ToString(in.Key), f.presignCalls)
	return &v4.PresignedHTTPRequest{URL: url, Method: "GET"}, nil
}

var (
	_ ObjectAPI  = (*fakeAPI)(nil)
	_ PresignAPI = (*fakeAPI)(nil)
)

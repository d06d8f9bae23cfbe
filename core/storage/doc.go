// Package storage wraps the MinIO client used for S3-compatible object storage.
//
// Record streams can live in a bucket instead of on local disk: a chart location of
// the form s3://bucket/key is opened through Client.GetObject. Finished extraction
// tables can be uploaded with Client.PutObject when the --upload flag is set.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	bucket, object, err := storage.ParseObjectURI("s3://mimic/CHARTEVENTS.csv.gz")
//	rc, err := client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
package storage

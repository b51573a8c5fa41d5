package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anyshare_uploads_total",
		Help: "Uploads by outcome (ok, invalid, storage_error, metadata_error).",
	}, []string{"status"})

	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "anyshare_upload_bytes_total",
		Help: "Bytes accepted by successful uploads.",
	})

	resolvesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anyshare_resolves_total",
		Help: "Handle resolutions by outcome (live, expired, not_found, upstream).",
	}, []string{"outcome"})

	reapsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anyshare_reaps_total",
		Help: "Expired records reaped, by trigger (read, sweep) and record delete result.",
	}, []string{"trigger", "result"})

	orphanedBlobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "anyshare_orphaned_blobs_total",
		Help: "Blobs left without a metadata record, by cause (insert_failed, delete_failed).",
	}, []string{"cause"})
)

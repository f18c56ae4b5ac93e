package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/streambw/timing/cache"
)

var _ = Describe("Cache", func() {
	var c *cache.Cache

	BeforeEach(func() {
		// Small cache for testing: 4KB, 4-way, 64B lines
		c = cache.New(cache.Config{
			Size:          4 * 1024,
			Associativity: 4,
			BlockSize:     64,
		})
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			Expect(c.Read(0x1000)).To(BeFalse())

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit on cached data", func() {
			c.Read(0x1000)

			Expect(c.Read(0x1000)).To(BeTrue())
			Expect(c.Stats().Hits).To(Equal(uint64(1)))
		})

		It("should hit on different addresses in same cache line", func() {
			c.Read(0x1000)

			Expect(c.Read(0x1038)).To(BeTrue())
		})
	})

	Describe("Write operations", func() {
		It("should write-allocate on miss", func() {
			Expect(c.Write(0x1000)).To(BeFalse())
			Expect(c.Read(0x1000)).To(BeTrue())
			Expect(c.Stats().MemoryBlocks()).To(Equal(uint64(1)))
		})
	})

	Describe("Eviction", func() {
		It("should evict the least recently used block of a full set", func() {
			// 4KB / (4 ways * 64B) = 16 sets, so addresses 1KB apart share a set.
			for i := uint64(0); i < 4; i++ {
				c.Read(i * 1024)
			}
			c.Read(0) // make block 0 most recently used

			Expect(c.Read(4 * 1024)).To(BeFalse())
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))

			Expect(c.Read(0)).To(BeTrue())
			Expect(c.Read(2 * 1024)).To(BeTrue())
			Expect(c.Read(1024)).To(BeFalse()) // the LRU victim
		})

		It("should count writebacks of dirty victims", func() {
			for i := uint64(0); i < 5; i++ {
				c.Write(i * 1024)
			}
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(1)))
			Expect(c.Stats().MemoryBlocks()).To(Equal(uint64(6)))
		})

		It("should not write back clean victims", func() {
			for i := uint64(0); i < 5; i++ {
				c.Read(i * 1024)
			}
			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(c.Stats().Writebacks).To(BeZero())
		})

		It("should clear statistics but keep contents on ResetStats", func() {
			c.Write(0x1000)
			c.ResetStats()

			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Read(0x1000)).To(BeTrue())
		})
	})

	Describe("Statistics", func() {
		It("should compute the hit rate", func() {
			c.Read(0x1000)
			c.Read(0x1000)
			c.Write(0x1000)
			c.Write(0x2000)

			stats := c.Stats()
			Expect(stats.Accesses()).To(Equal(uint64(4)))
			Expect(stats.HitRate()).To(Equal(0.5))
		})

		It("should report a zero hit rate without accesses", func() {
			Expect(cache.Statistics{}.HitRate()).To(Equal(0.0))
		})
	})
})

var _ = Describe("CheckResidency", func() {
	llc := cache.DefaultLLCConfig(1024 * 1024)

	It("should flag a working set that fits in cache", func() {
		res, err := cache.CheckResidency(64*1024, llc, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Scale).To(Equal(uint64(1)))
		Expect(res.HitRate).To(BeNumerically(">", 0.9))
		Expect(res.Resident).To(BeTrue())
		Expect(res.BelowSizingRule).To(BeTrue())
		Expect(res.Warnings()).To(HaveLen(2))
		Expect(res.Evictions).To(BeZero())
		Expect(res.MemoryBytes).To(BeZero())
		Expect(res.TrafficRatio()).To(BeZero())
	})

	It("should pass a working set far larger than the cache", func() {
		res, err := cache.CheckResidency(16*1024*1024, llc, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Ratio).To(Equal(16.0))
		Expect(res.HitRate).To(BeNumerically("<", 0.01))
		Expect(res.Resident).To(BeFalse())
		Expect(res.BelowSizingRule).To(BeFalse())
		Expect(res.Warnings()).To(BeEmpty())
	})

	It("should count write-allocate fills and writebacks in streaming traffic", func() {
		res, err := cache.CheckResidency(16*1024*1024, llc, 0)
		Expect(err).NotTo(HaveOccurred())

		// Scaling rounds each array up to a whole number of scaled blocks.
		Expect(res.CountedBytes).To(BeNumerically("~", 10*16*1024*1024, 10*64*res.Scale))
		Expect(res.Writebacks).To(BeNumerically(">", 0))
		Expect(res.Evictions).To(BeNumerically(">=", res.Writebacks))
		Expect(res.TrafficRatio()).To(BeNumerically("~", 1.4, 0.02))
	})

	It("should scale large working sets down with the cache", func() {
		res, err := cache.CheckResidency(800_000_000, cache.DefaultLLCConfig(64*1024*1024), 1<<14)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Scale).To(BeNumerically(">", 1))
		Expect(res.Resident).To(BeFalse())
	})

	It("should flag arrays between one and four times the cache by ratio only", func() {
		res, err := cache.CheckResidency(2*1024*1024, llc, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.BelowSizingRule).To(BeTrue())
		Expect(res.Resident).To(BeFalse())
	})

	It("should reject an empty cache", func() {
		_, err := cache.CheckResidency(1024, cache.Config{}, 0)
		Expect(err).To(HaveOccurred())
	})

	It("should reject empty arrays", func() {
		_, err := cache.CheckResidency(0, llc, 0)
		Expect(err).To(HaveOccurred())
	})
})

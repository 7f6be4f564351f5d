// parallel.go - worker-pool parallelism across independent groups (C7's
// parallelism hook)
//
// Every group's round keys are derived purely from (key, nonce, context,
// block_counter, domain): nothing about group g depends on the output of
// group g-1. That makes the group loop embarrassingly parallel, and since
// every lane's running checksum folds by XOR, the per-group partial
// checksums can be combined in any order once every group has finished.
// This file runs AES-Blake's group loop on a worker pool fed through a job
// channel, one group per job.
package aesblake

import (
	"crypto/subtle"
	"fmt"
	"runtime"
	"sync"
)

// ParallelConfig controls parallel group processing for Encrypt/Decrypt.
type ParallelConfig struct {
	// Enabled turns on worker-pool processing. When false, EncryptParallel
	// and DecryptParallel fall back to the sequential Cipher methods.
	Enabled bool

	// MaxWorkers is the maximum number of worker goroutines. If 0,
	// defaults to runtime.NumCPU().
	MaxWorkers int

	// MinGroupsForParallel is the minimum number of groups before the
	// worker pool is used; below this, sequential processing wins on
	// setup overhead alone. Defaults to 4.
	MinGroupsForParallel int
}

// DefaultParallelConfig returns sane defaults: parallel processing enabled,
// one worker per CPU, at least 4 groups before it kicks in.
func DefaultParallelConfig() ParallelConfig {
	return ParallelConfig{
		Enabled:              true,
		MaxWorkers:           runtime.NumCPU(),
		MinGroupsForParallel: 4,
	}
}

// Validate checks that the parallel configuration is well-formed.
func (p *ParallelConfig) Validate() error {
	if !p.Enabled {
		return nil
	}
	if p.MaxWorkers < 0 {
		return NewValidationError("MaxWorkers", p.MaxWorkers, "parallel max workers cannot be negative")
	}
	if p.MaxWorkers > 1024 {
		return NewValidationError("MaxWorkers", p.MaxWorkers, "parallel max workers must not exceed 1024")
	}
	if p.MinGroupsForParallel < 1 {
		return NewValidationError("MinGroupsForParallel", p.MinGroupsForParallel, "parallel min groups threshold must be at least 1")
	}
	return nil
}

// groupJob is one group's worth of work: a fixed block_counter and the
// plaintext/ciphertext chunks belonging to it.
type groupJob struct {
	blockCounter uint64
	chunks       [][16]byte
	out          [][16]byte
	chk          []Checksum
	err          error
}

func runGroupJobs(numWorkers int, jobs []*groupJob, work func(*groupJob)) error {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if numWorkers > len(jobs) {
		numWorkers = len(jobs)
	}

	var wg sync.WaitGroup
	jobChan := make(chan int, len(jobs))
	errChan := make(chan error, numWorkers)

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					err := fmt.Errorf("panic in aesblake parallel worker: %v", r)
					select {
					case errChan <- err:
					default:
					}
				}
			}()
			for idx := range jobChan {
				work(jobs[idx])
			}
		}()
	}

	for i := range jobs {
		jobChan <- i
	}
	close(jobChan)
	wg.Wait()
	close(errChan)

	select {
	case err := <-errChan:
		return err
	default:
	}
	for _, j := range jobs {
		if j.err != nil {
			return j.err
		}
	}
	return nil
}

// EncryptParallel is Cipher.Encrypt with the group loop fanned out across a
// worker pool per cfg. Results are identical to the sequential method;
// plaintextChk is combined by XOR across groups after every worker
// finishes, which is safe because group checksums commute.
func (c *Cipher) EncryptParallel(plaintext, header []byte, cfg ParallelConfig) (ciphertext, tag []byte, err error) {
	groupBytes := c.tier.GroupBytes()
	if err := validateGroupLength("plaintext", plaintext, groupBytes); err != nil {
		return nil, nil, err
	}
	if err := validateGroupLength("header", header, groupBytes); err != nil {
		return nil, nil, err
	}

	n := c.lanes()
	chunks := chunkBlocks(plaintext)
	numGroups := len(chunks) / n
	if !cfg.Enabled || numGroups < cfg.MinGroupsForParallel {
		return c.Encrypt(plaintext, header)
	}

	jobs := make([]*groupJob, numGroups)
	for g := 0; g < numGroups; g++ {
		jobs[g] = &groupJob{blockCounter: uint64(g), chunks: chunks[g*n : g*n+n]}
	}

	err = runGroupJobs(cfg.MaxWorkers, jobs, func(j *groupJob) {
		rk := c.deriveRoundKeys(j.blockCounter, DomainMSG)
		j.out = runEncryptionRounds(c.tier, rk, j.chunks)
	})
	if err != nil {
		return nil, nil, err
	}

	ciphertext = make([]byte, 0, len(plaintext))
	plaintextChk := createChecksums(n)
	blockCounter := uint64(numGroups)
	for _, j := range jobs {
		for _, ob := range j.out {
			ciphertext = append(ciphertext, ob[:]...)
		}
		for k := 0; k < n; k++ {
			plaintextChk[k].XorWith(j.chunks[k])
		}
	}

	tag = c.computeAuthTag(header, plaintextChk, &blockCounter)
	return ciphertext, tag, nil
}

// DecryptParallel is Cipher.Decrypt with the group loop fanned out across a
// worker pool per cfg.
func (c *Cipher) DecryptParallel(ciphertext, header, tag []byte, cfg ParallelConfig) ([]byte, error) {
	groupBytes := c.tier.GroupBytes()
	if err := validateGroupLength("ciphertext", ciphertext, groupBytes); err != nil {
		return nil, err
	}
	if err := validateGroupLength("header", header, groupBytes); err != nil {
		return nil, err
	}
	if len(tag) != c.tier.TagBytes() {
		return nil, NewValidationError("tag", len(tag), "tag length does not match tier")
	}

	n := c.lanes()
	chunks := chunkBlocks(ciphertext)
	numGroups := len(chunks) / n
	if !cfg.Enabled || numGroups < cfg.MinGroupsForParallel {
		return c.Decrypt(ciphertext, header, tag)
	}

	jobs := make([]*groupJob, numGroups)
	for g := 0; g < numGroups; g++ {
		jobs[g] = &groupJob{blockCounter: uint64(g), chunks: chunks[g*n : g*n+n]}
	}

	err := runGroupJobs(cfg.MaxWorkers, jobs, func(j *groupJob) {
		rk := c.deriveRoundKeys(j.blockCounter, DomainMSG)
		j.out = runDecryptionRounds(c.tier, rk, j.chunks)
	})
	if err != nil {
		return nil, err
	}

	plaintext := make([]byte, 0, len(ciphertext))
	plaintextChk := createChecksums(n)
	blockCounter := uint64(numGroups)
	for _, j := range jobs {
		for _, ob := range j.out {
			plaintext = append(plaintext, ob[:]...)
		}
		for k := 0; k < n; k++ {
			plaintextChk[k].XorWith(j.out[k])
		}
	}

	computed := c.computeAuthTag(header, plaintextChk, &blockCounter)
	if subtle.ConstantTimeCompare(computed, tag) == 1 {
		return plaintext, nil
	}
	return nil, NewAuthenticationError(c.tier.String())
}

/*
Package memory implements tiered conversational memory for AI agents.

# Overview

The package retains recent interactions verbatim in a bounded short-term
tier, decides which of them deserve durable retention, and retrieves the
most relevant past interactions to condition a new response. Relevance
combines semantic similarity, concept overlap, recency decay, and access
frequency into one score, so rankings stay stable and reproducible under
continuous mutation while memory growth stays bounded.

# Core types

  - [MemoryStore]: the tiered store of one memory set (one agent/user
    partition), exposing AddInteraction / Retrieve / Recent / Snapshot.
  - [ScoringEngine]: pure relevance and retention scoring over the four
    weighted sub-scores.
  - [ShortTermStore] / [LongTermStore]: the bounded recency tier and the
    unbounded retention tier.
  - [PromotionPolicy]: moves overflow records to long-term storage when
    they clear the promotion threshold, discards them otherwise.
  - [RetrievalEngine]: ranks records across both tiers and reinforces the
    ones it returns.
  - [Manager]: multi-set front with persistence, tracing, and metrics.
  - [ContextBuilder]: assembles a token-budgeted prompt context from
    retrieved and recent interactions.

# Concurrency

Mutation within one memory set is serialized behind the set's exclusive
lock, which also makes tier moves atomic: a record is observable in exactly
one tier at any instant. Different sets share no mutable state and operate
fully in parallel.

Embedding and concept extraction are external capabilities; the store
operations never block on I/O.
*/
package memory
